package models

// ThemeMode is the site-wide color scheme
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// String implements fmt.Stringer for logging
func (m ThemeMode) String() string {
	if m == "" {
		return string(ThemeLight)
	}
	return string(m)
}

// IsValid returns true if the mode is a known value
func (m ThemeMode) IsValid() bool {
	switch m {
	case ThemeLight, ThemeDark:
		return true
	}
	return false
}

// IsDark reports whether the mode is the dark scheme
func (m ThemeMode) IsDark() bool {
	return m == ThemeDark
}

// Toggled returns the opposite mode; unknown values toggle to dark
func (m ThemeMode) Toggled() ThemeMode {
	if m == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseThemeMode converts a stored value to a mode, defaulting to light
func ParseThemeMode(s string) ThemeMode {
	m := ThemeMode(s)
	if m.IsValid() {
		return m
	}
	return ThemeLight
}

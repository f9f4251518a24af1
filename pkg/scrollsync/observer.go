// Package scrollsync keeps table-of-contents highlights in step with the sections
// currently crossing the viewport midline.
//
// The Observer is driven by an intersection primitive (in production, a browser relaying
// IntersectionObserver events) and is not safe for concurrent use: all calls for one
// observer must come from the goroutine that owns the view.
package scrollsync

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// DefaultRootMargin shrinks the observed viewport to a horizontal line through its middle,
// so a section is "intersecting" while it straddles the midline.
const DefaultRootMargin = "-50% 0px -50% 0px"

// Element is a rendered section the primitive can watch. Implementations must be usable
// as map keys (pointer types are).
type Element interface {
	ID() string
}

// Entry is one intersection change reported by the primitive.
type Entry struct {
	Target         Element
	IsIntersecting bool
}

// Options are passed to the primitive when observation starts.
type Options struct {
	RootMargin string
}

// Subscription is an active observation. Disconnect stops all further callbacks.
type Subscription interface {
	Disconnect()
}

// Primitive reports viewport intersection changes for a set of elements.
type Primitive interface {
	Observe(targets []Element, opts Options, callback func([]Entry)) Subscription
}

// TOCEntry is the table-of-contents item for one section.
type TOCEntry interface {
	SetActive(active bool)
}

// Section pairs a rendered element with its table-of-contents entry.
type Section struct {
	Element Element
	Entry   TOCEntry
}

// Observer maps intersection events onto table-of-contents highlights for one mounted view.
type Observer struct {
	primitive Primitive
	opts      Options
	log       *logrus.Entry

	entries    map[Element]TOCEntry
	active     map[string]bool
	sub        Subscription
	generation uint64
}

// New creates an unmounted observer. An empty RootMargin uses DefaultRootMargin.
func New(primitive Primitive, opts Options, log *logrus.Entry) *Observer {
	if opts.RootMargin == "" {
		opts.RootMargin = DefaultRootMargin
	}
	return &Observer{
		primitive: primitive,
		opts:      opts,
		log:       log,
	}
}

// Mount registers sections for observation. Any previous registration is torn down first,
// and active state starts empty. Sections without an element or entry are skipped; mounting
// zero sections leaves the observer unmounted.
func (o *Observer) Mount(sections []Section) {
	o.Unmount()

	entries := make(map[Element]TOCEntry, len(sections))
	targets := make([]Element, 0, len(sections))
	for _, s := range sections {
		if s.Element == nil || s.Entry == nil {
			continue
		}
		if _, dup := entries[s.Element]; dup {
			continue
		}
		entries[s.Element] = s.Entry
		targets = append(targets, s.Element)
	}
	if len(targets) == 0 {
		return
	}

	o.generation++
	gen := o.generation
	o.entries = entries
	o.active = make(map[string]bool, len(targets))
	o.sub = o.primitive.Observe(targets, o.opts, func(batch []Entry) {
		o.handle(gen, batch)
	})

	if o.log != nil {
		o.log.Debugf("Observing %d sections (generation %d)", len(targets), gen)
	}
}

// Unmount disconnects the primitive and forgets every registration. Callbacks still in
// flight for the old registration are ignored. Calling Unmount when not mounted is a no-op.
func (o *Observer) Unmount() {
	if o.sub != nil {
		o.sub.Disconnect()
		if o.log != nil {
			o.log.Debugf("Disconnected observer (generation %d)", o.generation)
		}
	}
	o.sub = nil
	o.entries = nil
	o.active = nil
}

// Mounted reports whether a registration is live.
func (o *Observer) Mounted() bool {
	return o.sub != nil
}

// Generation identifies the current registration; it increases with every mount.
func (o *Observer) Generation() uint64 {
	return o.generation
}

// Active returns the ids of sections currently highlighted, sorted.
func (o *Observer) Active() []string {
	ids := make([]string, 0, len(o.active))
	for id, on := range o.active {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// handle applies one batch: each entry's TOC item is activated when intersecting and
// deactivated otherwise. Several items may be active at once.
func (o *Observer) handle(gen uint64, batch []Entry) {
	if o.sub == nil || gen != o.generation {
		return
	}
	for _, e := range batch {
		toc, ok := o.entries[e.Target]
		if !ok {
			continue
		}
		toc.SetActive(e.IsIntersecting)
		if e.IsIntersecting {
			o.active[e.Target.ID()] = true
		} else {
			delete(o.active, e.Target.ID())
		}
	}
}

package search

// SubscribeSelect registers a callback for place selection events, for
// example to open a detail view. The engine does not own that view.
func (e *Engine) SubscribeSelect(fn func(*AnnotatedPlace)) {
	e.mu.Lock()
	e.selectSubs = append(e.selectSubs, fn)
	e.mu.Unlock()
}

// Select resolves a marker or list-item click against the committed
// snapshot and notifies selection subscribers. It returns nil when the
// place is not part of the current results.
func (e *Engine) Select(placeID string) *AnnotatedPlace {
	e.mu.Lock()
	var selected *AnnotatedPlace
	if e.committed != nil {
		for _, a := range e.committed.Places {
			if a.Place.ID == placeID {
				selected = a
				break
			}
		}
	}
	subs := make([]func(*AnnotatedPlace), len(e.selectSubs))
	copy(subs, e.selectSubs)
	e.mu.Unlock()

	if selected == nil {
		return nil
	}
	for _, fn := range subs {
		fn(selected)
	}
	return selected
}

package customer

// MarkChanged compares the customer and each sub-document with its last
// synced snapshot and moves the ones that differ to LocallyModified. Only
// entities with an external id and a snapshot are considered, so unsynced
// and local-only entities keep their state. It returns the number of links
// that changed state; a second call without new edits returns 0.
func (c *Customer) MarkChanged() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := 0
	mark := func(differs bool, modify func() bool) {
		if differs && modify() {
			changed++
		}
	}

	if o := c.Originals.Customer; o != nil && c.Link.HasExternalID() {
		mark(*o != c.Snapshot(), c.Link.MarkModified)
	}

	for _, a := range c.Addresses {
		if o, ok := c.Originals.Addresses[a.ID]; ok && a.Link.HasExternalID() {
			mark(o != a.Snapshot(), a.Link.MarkModified)
		}
	}

	for _, pm := range c.PaymentMethods {
		if o, ok := c.Originals.PaymentMethods[pm.ID]; ok && pm.Link.HasExternalID() {
			mark(o != pm.Snapshot(), pm.Link.MarkModified)
		}
	}

	for _, s := range c.Subscriptions {
		if o, ok := c.Originals.Subscriptions[s.ID]; ok && s.Link.HasExternalID() {
			mark(o.Differs(s), s.Link.MarkModified)
		}
	}

	return changed
}

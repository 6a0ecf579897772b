package chat

// WebSearch reports whether the next text turn asks for web search.
func (c *Controller) WebSearch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.webSearch
}

// SetWebSearch arms or disarms web search for the next text turn.
func (c *Controller) SetWebSearch(on bool) {
	c.mu.Lock()
	c.webSearch = on
	c.mu.Unlock()
	c.publish(Event{Kind: EventWebSearchChanged, WebSearch: on})
}

// ToggleWebSearch flips the flag and returns the new value.
func (c *Controller) ToggleWebSearch() bool {
	c.mu.Lock()
	c.webSearch = !c.webSearch
	on := c.webSearch
	c.mu.Unlock()
	c.publish(Event{Kind: EventWebSearchChanged, WebSearch: on})
	return on
}

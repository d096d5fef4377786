package config

// Merge folds configuration fragments left to right. Later scalars win,
// clients merge by id, header maps merge by key. A client's hosts list is
// replaced as a whole, never concatenated.
func Merge(fragments ...Elasticsearch) Elasticsearch {
	out := Elasticsearch{Clients: make(map[string]Client)}

	for _, frag := range fragments {
		if frag.DefaultClient != "" {
			out.DefaultClient = frag.DefaultClient
		}
		for id, client := range frag.Clients {
			existing, ok := out.Clients[id]
			if !ok {
				out.Clients[id] = client.clone()
				continue
			}
			out.Clients[id] = existing.merge(client)
		}
	}
	return out
}

func (c Client) merge(next Client) Client {
	out := c.clone()

	if next.Hosts != nil {
		out.Hosts = append([]string(nil), next.Hosts...)
	}
	if next.ConnectionPool != "" {
		out.ConnectionPool = next.ConnectionPool
	}
	if next.Selector != "" {
		out.Selector = next.Selector
	}
	if next.ConnectionParams != nil {
		out.ConnectionParams = next.ConnectionParams
	}
	if next.Retries != nil {
		retries := *next.Retries
		out.Retries = &retries
	}
	if next.Logger != "" {
		out.Logger = next.Logger
	}
	if next.RateLimit != 0 {
		out.RateLimit = next.RateLimit
	}
	for k, v := range next.Headers {
		if out.Headers == nil {
			out.Headers = make(map[string]string)
		}
		out.Headers[k] = v
	}
	return out
}

func (c Client) clone() Client {
	out := c
	if c.Hosts != nil {
		out.Hosts = append([]string(nil), c.Hosts...)
	}
	if c.Retries != nil {
		retries := *c.Retries
		out.Retries = &retries
	}
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

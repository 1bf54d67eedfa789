package resource

import (
	"errors"
	"strings"
)

// Combining consults a list of resolvers in order. The first resolver able to
// read a location answers for it.
type Combining struct {
	resolvers []Resolver
}

// NewCombining returns a resolver over resolvers, which must not be empty.
func NewCombining(resolvers ...Resolver) (*Combining, error) {
	list := make([]Resolver, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			list = append(list, r)
		}
	}

	if len(list) == 0 {
		return nil, ErrNoResolvers
	}

	return &Combining{resolvers: list}, nil
}

func (c *Combining) CanRead(location string) bool {
	for _, r := range c.resolvers {
		if r.CanRead(location) {
			return true
		}
	}

	return false
}

func (c *Combining) Read(location string) (string, error) {
	for _, r := range c.resolvers {
		content, err := r.Read(location)
		if err == nil {
			return content, nil
		}

		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}

	return "", notFound(location)
}

func (c *Combining) LastModified(location string) int64 {
	for _, r := range c.resolvers {
		if r.CanRead(location) {
			return r.LastModified(location)
		}
	}

	return Unresolvable
}

func (c *Combining) Identity() string {
	ids := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		ids[i] = r.Identity()
	}

	return "combine[" + strings.Join(ids, ";") + "]"
}

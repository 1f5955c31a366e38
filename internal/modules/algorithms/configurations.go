package algorithms

import (
	"fmt"
	"sort"
)

// Configurations is a collection of algorithm configurations kept sorted by
// configuration name. The zero value is ready to use.
type Configurations struct {
	configurations []*Configuration
}

// NewConfigurations creates a collection from the given configurations.
// It returns an error when two configurations share a name.
func NewConfigurations(configurations ...*Configuration) (*Configurations, error) {
	collection := &Configurations{}
	for _, configuration := range configurations {
		if err := collection.Add(configuration); err != nil {
			return nil, err
		}
	}
	return collection, nil
}

// Add inserts a configuration, keeping the collection sorted by name.
// Adding a configuration whose name is already present is an error.
func (c *Configurations) Add(configuration *Configuration) error {
	if c.Contains(configuration.Name) {
		return fmt.Errorf(
			"the collection already contains an algorithm configuration named %q",
			configuration.Name,
		)
	}
	index := sort.Search(len(c.configurations), func(i int) bool {
		return c.configurations[i].Name >= configuration.Name
	})
	c.configurations = append(c.configurations, nil)
	copy(c.configurations[index+1:], c.configurations[index:])
	c.configurations[index] = configuration
	return nil
}

// Remove discards the configuration with the given name, if present.
func (c *Configurations) Remove(name string) {
	for i, configuration := range c.configurations {
		if configuration.Name == name {
			c.configurations = append(c.configurations[:i], c.configurations[i+1:]...)
			return
		}
	}
}

// Contains reports whether a configuration with the given name is present.
func (c *Configurations) Contains(name string) bool {
	for _, configuration := range c.configurations {
		if configuration.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of configurations.
func (c *Configurations) Len() int {
	return len(c.configurations)
}

// All returns the configurations in name order.
func (c *Configurations) All() []*Configuration {
	configurations := make([]*Configuration, len(c.configurations))
	copy(configurations, c.configurations)
	return configurations
}

// Names returns the configuration names in alphabetical order.
func (c *Configurations) Names() []string {
	names := make([]string, len(c.configurations))
	for i, configuration := range c.configurations {
		names[i] = configuration.Name
	}
	return names
}

// Algorithms returns the distinct algorithm names in alphabetical order.
func (c *Configurations) Algorithms() []string {
	seen := make(map[string]struct{}, len(c.configurations))
	names := make([]string, 0, len(c.configurations))
	for _, configuration := range c.configurations {
		if _, ok := seen[configuration.AlgorithmName]; ok {
			continue
		}
		seen[configuration.AlgorithmName] = struct{}{}
		names = append(names, configuration.AlgorithmName)
	}
	sort.Strings(names)
	return names
}

// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/pxdb/pkg/api"    //nolint:depguard
	"github.com/ssargent/pxdb/pkg/export" //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	sinkFactory   export.SinkFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		sinkFactory:   export.NewSinkFactory(),
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// GetSinkFactory returns the export sink factory
func (c *Container) GetSinkFactory() export.SinkFactory {
	return c.sinkFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// SetSinkFactory allows overriding the sink factory (for testing)
func (c *Container) SetSinkFactory(factory export.SinkFactory) {
	c.sinkFactory = factory
}

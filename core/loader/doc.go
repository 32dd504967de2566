// Package loader provides the plugin-like feature loading system.
//
// Each feature (medicamentos pipeline, manual loader, integrity checks) implements the
// Feature interface and is registered with a Manager by the serve command.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
package loader

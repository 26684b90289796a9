// Package di provides a small dependency injection container used to wire
// the application at startup.
//
// Services are registered by name with one of three lifetimes:
//
//   - Singleton: the provider runs once per container and the instance is
//     shared by every resolve.
//   - Scoped: the provider runs once per Scope, so request-bound state can
//     be isolated and torn down with the scope.
//   - Transient: the provider runs on every resolve.
//
// Providers receive a Resolver and pull their dependencies through it,
// which lets the container detect circular dependencies and report the
// full chain:
//
//	c := di.New()
//	c.MustRegister("config", di.Singleton, func(di.Resolver) (any, error) {
//		return config.Load()
//	})
//	c.MustRegister("db", di.Singleton, func(r di.Resolver) (any, error) {
//		cfg, err := di.ResolveAs[*config.Config](r, "config")
//		if err != nil {
//			return nil, err
//		}
//		return database.NewPostgres(ctx, cfg.Postgres)
//	})
//
// Closing the container closes every cached instance that implements
// io.Closer, in reverse creation order, so dependents shut down before
// their dependencies.
package di

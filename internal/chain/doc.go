// Package chain provides an immutable, chainable HTTP request builder.
//
// A Builder carries a URL and an option mapping. Every configuration method
// returns a new Builder, so a partially configured chain can be shared and
// extended freely:
//
//	api := chain.New("https://api.example.com").Accept("application/json")
//	users := api.URL("https://api.example.com/users")
//
//	value, err := users.Query(chain.P("page", 2)).
//		Get(ctx).
//		NotFound(func(*chain.DispatchError) (any, error) { return nil, nil }).
//		JSON(ctx, nil)
//
// Verbs dispatch the request in the background and return a Result. Options are
// merged at dispatch time with Settings defaults at the bottom, call-site options
// in the middle and the builder's own options on top. A non-2xx response becomes a
// *DispatchError whose body is decoded as text or JSON depending on the error mode.
// Handlers registered on the Result may recover from such errors by status code.
package chain

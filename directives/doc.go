// Package directives provides ready-made directives for fighting APIs.
//
// Register them under the names used in documentation blocks:
//
//	api, err := fighting.New(app, doc, fighting.WithDirectives(map[string]fighting.Directive{
//		"auth":      directives.Auth(secret),
//		"ratelimit": directives.RateLimit(),
//		"log":       directives.Log(logger),
//	}))
//
// and use them in an action's documentation:
//
//	$auth: [admin]
//	$ratelimit: {rate: 5, burst: 10}
package directives

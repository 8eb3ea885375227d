// Greeting service.
//
//	@message:
//	    hello?str: greeting
package greet

// Action greets someone.
//
//	$input:
//	    name?str&default="world": your name
//	$output: @message
func Action(name string) map[string]any {
	return map[string]any{"hello": name}
}

type Service struct{}

// Ping answers pong.
func (Service) Ping() string { return "pong" }

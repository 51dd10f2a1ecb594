// Parses flags and configures logging for the harness CLI.
//
// Global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//
// Commands:
//
//	build            Build the tracker image with the staged dependency list.
//	recipe list      List built-in recipes.
//	recipe show      Show a recipe.
//	recipe validate  Check recipes.
//	recipe apply     Print the effective configuration of a recipe.
//	tracker start    Export the tracker image and start it under containerd.
//	tracker stop     Stop the tracker task.
//	tracker status   Show the tracker state.
//	tracker exec     Run a command inside the tracker.
//	tracker destroy  Remove the tracker container.
//	version          Show version information.
//
// Proxy flags of build and tracker start read http_proxy, https_proxy, and
// no_proxy from the environment. Unset variables are forwarded as empty
// values.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is reinstalled to reflect the final level and verbosity before
// the command runs.
package cli

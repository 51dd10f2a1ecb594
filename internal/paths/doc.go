// Provides per-user paths for the harness CLI.
//
// Paths follow XDG conventions on Linux and platform-native conventions on
// macOS and Windows, with "harness" as the subdirectory under each base.
package paths

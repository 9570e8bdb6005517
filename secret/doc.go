// Package secret resolves credentials referenced from configuration.
//
// Values may carry environment variables ($VAR or ${VAR}, expanded strictly) and
// secret references using the prefix "secretref:":
//   - Full value:  secretref:env:GITHUB_TOKEN
//   - Inline use:  Bearer secretref:file:/run/secrets/github
//
// A Resolver dispatches each reference to the Provider registered under its
// name. EnvProvider and FileProvider are built in.
package secret

// Package credentials loads the Claude CLI OAuth credential from disk.
//
// # Overview
//
// The server never performs OAuth flows itself. Sign-in and token
// refresh belong to the Claude CLI; this package reads the credential
// file the CLI maintains and hands the access token to the usage
// client. When the token is missing or expired the caller surfaces an
// authentication error telling the operator to re-authenticate with
// the CLI.
//
// # File Format
//
// The credential file is the CLI's JSON layout:
//
//	{
//	  "claudeAiOauth": {
//	    "accessToken": "...",
//	    "refreshToken": "...",
//	    "expiresAt": 1756000000000,
//	    "scopes": ["user:inference"],
//	    "subscriptionType": "max"
//	  }
//	}
//
// expiresAt is Unix milliseconds.
//
// # Security
//
// Files with permissions other than 0600 or 0400 are refused. The
// Status summary exposed to the console carries expiry metadata only,
// never token material.
//
// # Watching
//
// With watching enabled the containing directory is monitored via
// fsnotify and the credential reloads on change, so re-authenticating
// through the CLI takes effect without a restart.
package credentials

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the chatterm command line.

# Commands

	chatterm              full-screen chat (same as "chat")
	chatterm chat         full-screen chat; line mode when not on a terminal
	chatterm repl         line mode with input history
	chatterm ask TEXT     one exchange, reply printed to stdout
	chatterm history      print or export the stored conversation
	chatterm config       show, initialise, get or set configuration

# Global Flags

	-c, --config FILE     config file (default ~/.chatterm/config.toml)
	--log-to-stderr       human-readable logs on stderr instead of the log file

# Exit Codes

	0  success
	1  general error
	2  usage error
	3  configuration error
	5  the endpoint could not produce a reply
*/
package cli

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chatterm is a terminal chat client for a single HTTP chat endpoint.
package main

import (
	"os"

	"github.com/jeranaias/chatterm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

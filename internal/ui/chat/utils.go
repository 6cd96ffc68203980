// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/atotto/clipboard"
)

// copyToClipboard copies the given text to the system clipboard.
func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// changeTracker records controller notifications between renders.
// It is shared by pointer so value copies of Model see the same flags.
type changeTracker struct {
	dirty    bool
	appended bool
}

func (c *changeTracker) reset() {
	c.dirty = false
	c.appended = false
}

// Package web embeds the built dashboard static assets for single-binary distribution.
package web

import "embed"

// Assets contains the dashboard production build output.
// The build/ directory is replaced by `pnpm run build` in the web/ directory;
// the checked-in index.html is a placeholder shell.
//
//go:embed all:build
var Assets embed.FS

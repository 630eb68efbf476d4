// ABOUTME: Embeds the chat pages into the binary using go:embed
// ABOUTME: Provides templateFS for the renderer

package webchat

import "embed"

//go:embed templates/*.html
var templateFS embed.FS

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetHref(t *testing.T) {
	const cdn = "https://cdn.jsdelivr.net"
	css := cdn + "/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css"
	icon := cdn + "/npm/bootstrap-icons@1.11.3/icons/chat-dots.svg"

	assert.Equal(t, "/assets/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css", assetHref(css, cdn))
	assert.Equal(t, "/assets/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css", assetHref(css, cdn+"/"))
	assert.Equal(t, "/assets/npm/bootstrap-icons@1.11.3/icons/chat-dots.svg", assetHref(icon, cdn))
	assert.Equal(t, css, assetHref(css, "https://unpkg.com"))
	assert.Equal(t, css, assetHref(css, ""))
	assert.Empty(t, assetHref("", cdn))
}

package traefik

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteLabels(t *testing.T) {
	labels := RouteLabels(RouteParams{
		Name:      "grafana",
		Subdomain: "grafana",
		Domain:    "lab.example.com",
		Port:      3000,
	})

	assert.Contains(t, labels, "traefik.enable=true")
	assert.Contains(t, labels, "traefik.http.routers.grafana.rule=Host(`grafana.lab.example.com`)")
	assert.Contains(t, labels, "traefik.http.routers.grafana.entrypoints=websecure")
	assert.Contains(t, labels, "traefik.http.routers.grafana.tls.certresolver=letsencrypt")
	assert.Contains(t, labels, "traefik.http.routers.grafana.middlewares=secure-headers@docker")
	assert.Contains(t, labels, "traefik.http.services.grafana.loadbalancer.server.port=3000")
}

func TestRouteLabels_ZeroPortOmitsLoadbalancer(t *testing.T) {
	labels := RouteLabels(RouteParams{
		Name:      "whoami",
		Subdomain: "whoami",
		Domain:    "lab.example.com",
	})

	for _, l := range labels {
		assert.NotContains(t, l, "loadbalancer")
	}
}

func TestProxyLabels_RedirectAndHeaders(t *testing.T) {
	labels := ProxyLabels("lab.example.com", "")

	joined := strings.Join(labels, "\n")
	assert.Contains(t, joined, "redirectscheme.scheme=https")
	assert.Contains(t, joined, "secure-headers")
	// No dashboard users means no dashboard router.
	assert.NotContains(t, joined, "basicauth")
}

func TestProxyLabels_Dashboard(t *testing.T) {
	labels := ProxyLabels("lab.example.com", "admin:$2y$10$abcdefghijklmnopqrstuv")

	joined := strings.Join(labels, "\n")
	assert.Contains(t, joined, "basicauth")
	assert.Contains(t, joined, "api@internal")

	var rule string
	for _, l := range labels {
		if strings.Contains(l, "routers.traefik.rule") {
			rule = l
		}
	}
	require.NotEmpty(t, rule)
	assert.Contains(t, rule, "traefik.lab.example.com")
}

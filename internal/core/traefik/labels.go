// Package traefik generates reverse-proxy routing labels for synthesized
// containers. All functions are pure; certificate issuance itself is the
// proxy container's concern.
package traefik

import "fmt"

// =============================================================================
// Label Generation Types
// =============================================================================

// RouteParams describes one HTTPS route to a container.
type RouteParams struct {
	// Name is the router/service name, unique per container.
	Name string

	// Subdomain is the host label under the base domain.
	Subdomain string

	// Domain is the base domain (e.g. "lab.example.com").
	Domain string

	// Port is the container port the loadbalancer targets. Zero omits the
	// loadbalancer label and lets the proxy pick the exposed port.
	Port int
}

// =============================================================================
// Label Generation Functions
// =============================================================================

// RouteLabels generates the label block that routes HTTPS traffic for one
// service: a websecure router with the letsencrypt resolver and the shared
// secure-headers middleware.
func RouteLabels(params RouteParams) []string {
	labels := []string{
		"traefik.enable=true",
		"traefik.docker.network=traefik",
		fmt.Sprintf("traefik.http.routers.%s.rule=Host(`%s.%s`)", params.Name, params.Subdomain, params.Domain),
		fmt.Sprintf("traefik.http.routers.%s.entrypoints=websecure", params.Name),
		fmt.Sprintf("traefik.http.routers.%s.tls.certresolver=letsencrypt", params.Name),
		fmt.Sprintf("traefik.http.routers.%s.middlewares=secure-headers@docker", params.Name),
	}
	if params.Port > 0 {
		labels = append(labels,
			fmt.Sprintf("traefik.http.services.%s.loadbalancer.server.port=%d", params.Name, params.Port))
	}
	return labels
}

// ProxyLabels generates the label block carried by the proxy container
// itself: the global HTTP-to-HTTPS redirect, the secure-headers middleware
// definition, and the basic-auth protected dashboard router.
func ProxyLabels(domain, dashboardUsers string) []string {
	labels := []string{
		"traefik.enable=true",
		"traefik.docker.network=traefik",

		// Global HTTP -> HTTPS redirect (catch-all)
		"traefik.http.middlewares.redirect-to-https.redirectscheme.scheme=https",
		"traefik.http.routers.http-catchall.rule=HostRegexp(`{host:.+}`)",
		"traefik.http.routers.http-catchall.entrypoints=web",
		"traefik.http.routers.http-catchall.middlewares=redirect-to-https@docker",

		// Security headers middleware shared by all routed services
		"traefik.http.middlewares.secure-headers.headers.forceSTSHeader=true",
		"traefik.http.middlewares.secure-headers.headers.stsSeconds=31536000",
		"traefik.http.middlewares.secure-headers.headers.stsIncludeSubdomains=true",
		"traefik.http.middlewares.secure-headers.headers.stsPreload=true",
		"traefik.http.middlewares.secure-headers.headers.browserXssFilter=true",
		"traefik.http.middlewares.secure-headers.headers.contentTypeNosniff=true",
		"traefik.http.middlewares.secure-headers.headers.frameDeny=true",
		"traefik.http.middlewares.secure-headers.headers.referrerPolicy=no-referrer-when-downgrade",
	}

	if dashboardUsers != "" {
		labels = append(labels,
			fmt.Sprintf("traefik.http.middlewares.dashboard-auth.basicauth.users=%s", dashboardUsers),
			fmt.Sprintf("traefik.http.routers.traefik.rule=Host(`traefik.%s`)", domain),
			"traefik.http.routers.traefik.entrypoints=websecure",
			"traefik.http.routers.traefik.tls.certresolver=letsencrypt",
			"traefik.http.routers.traefik.service=api@internal",
			"traefik.http.routers.traefik.middlewares=dashboard-auth@docker,secure-headers@docker",
		)
	}
	return labels
}

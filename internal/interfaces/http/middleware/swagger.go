package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hostel/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls access to the API documentation routes
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs accepts single addresses and CIDR prefixes; empty allows every client
	AllowedIPs []string
}

// AllowList matches client addresses against exact IPs and prefixes
type AllowList []netip.Prefix

// ParseAllowList turns addresses and CIDR ranges into prefixes. Entries that
// parse as neither are returned in rejected.
func ParseAllowList(entries []string) (list AllowList, rejected []string) {
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				list = append(list, p.Masked())
				continue
			}
		} else if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			list = append(list, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		rejected = append(rejected, raw)
	}
	return list, rejected
}

// Contains reports whether addr falls inside any entry
func (l AllowList) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// SwaggerProtection guards the documentation routes. Disabled docs answer 404
// and clients outside the allow-list get 403. The allow-list is checked before
// jwtMiddleware runs.
func SwaggerProtection(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) gin.HandlerFunc {
	allow, _ := ParseAllowList(cfg.AllowedIPs)
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		requestID := c.GetString(RequestIDKey)
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", requestID))
			return
		}
		if restricted && !allow.Contains(clientAddr(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", requestID))
			return
		}
		if cfg.RequireAuth && jwtMiddleware != nil {
			jwtMiddleware(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

// clientAddr prefers gin's proxy-aware ClientIP and falls back to RemoteAddr
func clientAddr(c *gin.Context) netip.Addr {
	if addr, err := netip.ParseAddr(c.ClientIP()); err == nil {
		return addr
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	addr, _ := netip.ParseAddr(host)
	return addr
}

package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

// ClassifyConnectionError turns a store or cache connection failure into a
// message with likely causes and remediation steps. target must already be
// masked; it is printed as is.
func ClassifyConnectionError(err error, dependency, target string) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || strings.Contains(errStr, "timeout") {
		return fmt.Sprintf("Connection to %s at %s timed out.\n"+
			"  Possible causes:\n"+
			"  - The %s is starting up (wait and retry)\n"+
			"  - Network latency or a firewall blocking the connection\n"+
			"  Remediation:\n"+
			"  - Verify network connectivity to the host in the URL", dependency, target, dependency)
	}

	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "actively refused") {
		return fmt.Sprintf("Connection refused by %s at %s.\n"+
			"  This usually means the %s is not running.\n"+
			"  Remediation:\n"+
			"  - Start the %s or fix the host and port in the URL", dependency, target, dependency, dependency)
	}

	if strings.Contains(errStr, "no such host") || strings.Contains(errStr, "lookup") {
		return fmt.Sprintf("Cannot resolve hostname in %s address %s.\n"+
			"  Remediation:\n"+
			"  - Verify the hostname is correct\n"+
			"  - Check DNS configuration", dependency, target)
	}

	if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "password") ||
		strings.Contains(errStr, "noauth") || strings.Contains(errStr, "wrongpass") {
		return fmt.Sprintf("Authentication failed for %s at %s.\n"+
			"  Remediation:\n"+
			"  - Verify the credentials embedded in the URL", dependency, target)
	}

	if strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "read-only") ||
		strings.Contains(errStr, "unable to open database file") {
		return fmt.Sprintf("Cannot open %s file at %s: %v\n"+
			"  Remediation:\n"+
			"  - Ensure the parent directory exists and is writable", dependency, target, err)
	}

	return fmt.Sprintf("Failed to connect to %s at %s: %v\n"+
		"  Remediation:\n"+
		"  - Ensure the %s is running and accessible\n"+
		"  - Check the connection URL", dependency, target, err, dependency)
}

// printFatal writes a startup failure banner
func printFatal(stderr io.Writer, title, message string) {
	fmt.Fprintf(stderr, "\n========================================\n")
	fmt.Fprintf(stderr, "FATAL: %s\n", title)
	fmt.Fprintf(stderr, "========================================\n")
	fmt.Fprintf(stderr, "%s\n", message)
	fmt.Fprintf(stderr, "========================================\n\n")
}

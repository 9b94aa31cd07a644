// Package utils provides loose value conversion for payloads whose field types are not
// stable, chiefly the registry's JSON search results.
package utils

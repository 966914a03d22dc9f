// Package testutil contains helper builders and stubs used across tests to
// reduce boilerplate when constructing agent configurations, dispatch records
// and agent handles. They are not intended for production usage.
package testutil

package schema

import "github.com/davecgh/go-spew/spew"

// Dump renders a schema-typed object for debug logging, the Go
// equivalent of the original client's print_se_object call inside its
// notification handler. Unlike print_se_object, which walked the schema
// by hand to print each field, Dump leans on go-spew's reflection-based
// formatter since the Go object model already carries field names.
func Dump(obj interface{}) string {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	return cfg.Sdump(obj)
}

// Package example carries a small but complete application built on the
// schema dispatchers: a user directory with an admin subtree. It doubles
// as living documentation and as the app served by the demo gateway.
package example

import (
	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/core/validation"
)

// CreateUserInput validates the payload for creating a user.
func CreateUserInput() *validation.Object {
	return validation.NewObject(map[string]validation.Field{
		"name":  {Type: validation.TypeString, Required: true, MinLength: 1, MaxLength: 100},
		"email": {Type: validation.TypeString, Required: true, Pattern: `^[^@\s]+@[^@\s]+$`},
	})
}

// UserOutput validates a user record on its way out.
func UserOutput() *validation.Object {
	return validation.NewObject(map[string]validation.Field{
		"id":    {Type: validation.TypeString, Required: true},
		"name":  {Type: validation.TypeString, Required: true},
		"email": {Type: validation.TypeString, Required: true},
	})
}

// DeleteUserInput validates the payload for deleting a user.
func DeleteUserInput() *validation.Object {
	return validation.NewObject(map[string]validation.Field{
		"id": {Type: validation.TypeString, Required: true},
	})
}

// Tree is the shared schema. Both sides import this one value; the wire
// paths fall out of the key names.
func Tree() schema.Schema {
	return schema.Schema{
		"users": schema.Route{
			schema.Get: schema.Endpoint{
				Output:       schema.Raw,
				Metadata:     schema.MetadataOptional,
				CacheControl: "max-age=10",
			},
			schema.Post: schema.Endpoint{
				Input:    schema.Validated(CreateUserInput()),
				Output:   schema.Validated(UserOutput()),
				Metadata: schema.MetadataOptional,
			},
			schema.Delete: schema.Endpoint{
				Input:    schema.Validated(DeleteUserInput()),
				Metadata: schema.MetadataOptional,
			},
		},
		"admin": schema.Schema{
			"systemInfo": schema.Route{
				schema.Get: schema.Endpoint{Output: schema.Raw},
			},
			"auditLog": schema.Route{
				schema.Get: schema.Endpoint{Output: schema.Raw},
			},
		},
		"status": schema.Route{
			schema.Get: schema.Endpoint{
				Output:       schema.Raw,
				Metadata:     schema.MetadataUnused,
				CacheControl: "no-store",
			},
		},
	}
}

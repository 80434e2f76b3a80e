package creds

// bindingSchema is the JSON schema a service-binding document must satisfy
// before credentials are extracted from it. Each top-level key is a service
// type mapping to an array of binding objects.
const bindingSchema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "additionalProperties": {
        "type": "array",
        "items": {
            "type": "object",
            "properties": {
                "credentials": {
                    "type": "object"
                }
            },
            "required": ["credentials"]
        }
    }
}`

// objectStoreSchema constrains the credentials object of an object-store
// binding to the fields the resource layer needs.
const objectStoreSchema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "access_key_id": {"type": "string", "minLength": 1},
        "secret_access_key": {"type": "string", "minLength": 1},
        "bucket": {"type": "string", "minLength": 1},
        "kms_key_arn": {"type": "string"}
    },
    "required": ["access_key_id", "secret_access_key", "bucket"]
}`

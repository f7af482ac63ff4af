package validators

import "go.mongodb.org/mongo-driver/bson"

// RecordValidator is the schema shared by the residential collections: an ObjectID key, the
// timestamps every stored document carries and the fields that must be present. Value rules
// are enforced by the API.
func RecordValidator(required ...string) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":             "object",
			"required":             append([]string{"created_at"}, required...),
			"additionalProperties": true,
			"properties": bson.M{
				"_id":        bson.M{"bsonType": "objectId"},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

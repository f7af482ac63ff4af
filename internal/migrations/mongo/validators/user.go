package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"first_name",
			"username",
			"role",
			"password",
			"created_at",
		},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"first_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"username": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 50,
			},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"admin", "resident", "guard"},
			},
			// bcrypt output, never the plain password
			"password": bson.M{
				"bsonType":  "string",
				"minLength": 59,
				"maxLength": 60,
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

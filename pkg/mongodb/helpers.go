package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Now returns the current time in UTC truncated to the millisecond BSON keeps
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// BuildUpdateWithTimestamp builds a $set update that also stamps updatedAt
func BuildUpdateWithTimestamp(set bson.M) bson.M {
	set["updatedAt"] = Now()
	return bson.M{"$set": set}
}

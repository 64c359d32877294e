package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
)

func TestCriteriaToMongoFilter(t *testing.T) {
	criteria := groupDomain.CriteriaFromFilters(map[string]string{
		"id":               "sales",
		"name":             "sales",
		"nameLike":         "sal%",
		"member":           "kermit",
		"potentialStarter": "proc:1",
	})

	filter, err := criteriaToMongoFilter(criteria)
	require.NoError(t, err)

	assert.Equal(t, bson.D{{Key: "$and", Value: bson.A{
		bson.M{"_id": bson.M{"$eq": "sales"}},
		bson.M{"name": bson.M{"$eq": "sales"}},
		bson.M{"name": bson.M{"$regex": "^sal.*$", "$options": "s"}},
		bson.M{"members": bson.M{"$eq": "kermit"}},
		bson.M{"starters": bson.M{"$eq": "proc:1"}},
	}}}, filter)
}

func TestCriteriaToMongoFilter_Empty(t *testing.T) {
	filter, err := criteriaToMongoFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, filter)
}

func TestSortToMongo(t *testing.T) {
	sortDoc, err := sortToMongo(sharedQuery.Sort{Field: groupDomain.FieldID})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, sortDoc)

	sortDoc, err = sortToMongo(sharedQuery.Sort{Field: groupDomain.FieldType, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "type", Value: -1}, {Key: "_id", Value: -1}}, sortDoc)

	_, err = sortToMongo(sharedQuery.Sort{Field: groupDomain.FieldMember})
	assert.Error(t, err)
}

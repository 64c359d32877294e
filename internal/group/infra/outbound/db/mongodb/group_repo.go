package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	groupDomain "github.com/vskolike/groupdir/internal/group/domain"
	sharedDomain "github.com/vskolike/groupdir/shared/domain"
	sharedQuery "github.com/vskolike/groupdir/shared/platform/query"
	sharedUtils "github.com/vskolike/groupdir/shared/utils"
)

// GroupRepoMongoDB implementa GroupRepository para MongoDB. Miembros y
// enlaces de iniciador se guardan desnormalizados en el propio documento.
type GroupRepoMongoDB struct {
	client     *mongo.Client
	groupsColl *mongo.Collection
	outboxColl *mongo.Collection
}

var _ groupDomain.GroupRepository = (*GroupRepoMongoDB)(nil)

// NewGroupRepoMongoDB es el constructor del repositorio.
func NewGroupRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*GroupRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &GroupRepoMongoDB{
		client:     client,
		groupsColl: db.Collection("groups"),
		outboxColl: db.Collection("outbox"),
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoGroup struct {
	ID       string   `bson:"_id"`
	Name     string   `bson:"name"`
	Type     string   `bson:"type"`
	Members  []string `bson:"members"`
	Starters []string `bson:"starters"`
}

type mongoOutboxEvent struct {
	ID            uuid.UUID   `bson:"_id"`
	AggregateType string      `bson:"aggregateType"`
	AggregateID   string      `bson:"aggregateId"`
	EventType     string      `bson:"eventType"`
	Payload       interface{} `bson:"payload"`
	CreatedAt     time.Time   `bson:"createdAt"`
	Processed     bool        `bson:"processed"`
}

var mongoFields = map[string]string{
	groupDomain.FieldID:               "_id",
	groupDomain.FieldName:             "name",
	groupDomain.FieldType:             "type",
	groupDomain.FieldMember:           "members",
	groupDomain.FieldPotentialStarter: "starters",
}

// --- Escritura transaccional ---

func (r *GroupRepoMongoDB) Create(ctx context.Context, g *groupDomain.Group, evt sharedDomain.OutboxEvent) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	// La transacción asegura que ambas inserciones (grupo y evento) sean atómicas.
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.groupsColl.InsertOne(sessCtx, toMongoGroup(g)); err != nil {
			return nil, err
		}
		if _, err := r.outboxColl.InsertOne(sessCtx, toMongoOutboxEvent(evt)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", groupDomain.ErrDuplicateIdentity, g.ID)
	}
	return err
}

// --- Lectura ---

func (r *GroupRepoMongoDB) GetByID(ctx context.Context, id string) (*groupDomain.Group, error) {
	var mg mongoGroup
	err := r.groupsColl.FindOne(ctx, bson.M{"_id": id}).Decode(&mg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, groupDomain.ErrGroupNotFound
		}
		return nil, err
	}
	return fromMongoGroup(&mg), nil
}

func (r *GroupRepoMongoDB) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*groupDomain.Group, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return nil, err
	}
	// En Mongo un límite 0 significa "sin límite"
	if pagination.Limit <= 0 {
		return []*groupDomain.Group{}, nil
	}
	sortDoc, err := sortToMongo(sort)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(sortDoc).
		SetSkip(int64(pagination.Offset)).
		SetLimit(int64(pagination.Limit))

	cursor, err := r.groupsColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []*groupDomain.Group
	for cursor.Next(ctx) {
		var mg mongoGroup
		if err := cursor.Decode(&mg); err != nil {
			return nil, err
		}
		groups = append(groups, fromMongoGroup(&mg))
	}
	return groups, cursor.Err()
}

func (r *GroupRepoMongoDB) CountByCriteria(ctx context.Context, criteria sharedDomain.Criteria) (int64, error) {
	filter, err := criteriaToMongoFilter(criteria)
	if err != nil {
		return 0, err
	}
	return r.groupsColl.CountDocuments(ctx, filter)
}

// --- Membresías ---

func (r *GroupRepoMongoDB) updateGroup(ctx context.Context, groupID string, update bson.M) error {
	res, err := r.groupsColl.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return groupDomain.ErrGroupNotFound
	}
	return nil
}

func (r *GroupRepoMongoDB) AddMember(ctx context.Context, groupID, userID string) error {
	return r.updateGroup(ctx, groupID, bson.M{"$addToSet": bson.M{"members": userID}})
}

func (r *GroupRepoMongoDB) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.updateGroup(ctx, groupID, bson.M{"$pull": bson.M{"members": userID}})
}

func (r *GroupRepoMongoDB) AddStarter(ctx context.Context, processDefinitionID, groupID string) error {
	return r.updateGroup(ctx, groupID, bson.M{"$addToSet": bson.M{"starters": processDefinitionID}})
}

// --- Helpers de Mapeo y Conversión ---

func toMongoGroup(g *groupDomain.Group) *mongoGroup {
	return &mongoGroup{ID: g.ID, Name: g.Name, Type: g.Type, Members: []string{}, Starters: []string{}}
}

func fromMongoGroup(mg *mongoGroup) *groupDomain.Group {
	return &groupDomain.Group{ID: mg.ID, Name: mg.Name, Type: mg.Type}
}

func toMongoOutboxEvent(evt sharedDomain.OutboxEvent) *mongoOutboxEvent {
	return &mongoOutboxEvent{
		ID: evt.ID, AggregateType: evt.AggregateType, AggregateID: evt.AggregateID,
		EventType: evt.EventType, Payload: evt.Payload, CreatedAt: evt.CreatedAt, Processed: false,
	}
}

// criteriaToMongoFilter combina las condiciones con $and: dos condiciones
// sobre el mismo campo (name y nameLike) no deben pisarse.
func criteriaToMongoFilter(criteria sharedDomain.Criteria) (bson.D, error) {
	conds := sharedDomain.Conditions(criteria)
	if len(conds) == 0 {
		return bson.D{}, nil
	}

	clauses := bson.A{}
	for _, c := range conds {
		field, ok := mongoFields[c.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported criterion field %q", c.Field)
		}

		// Mapeo de operadores genéricos a operadores de MongoDB
		switch c.Op {
		case sharedDomain.OpEq, sharedDomain.OpHas:
			// Sobre un array, la igualdad es "contiene"
			clauses = append(clauses, bson.M{field: bson.M{"$eq": c.Value}})
		case sharedDomain.OpLike:
			pattern, _ := c.Value.(string)
			clauses = append(clauses, bson.M{field: bson.M{"$regex": sharedDomain.LikeToRegexp(pattern), "$options": "s"}})
		default:
			return nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	return bson.D{{Key: "$and", Value: clauses}}, nil
}

func sortToMongo(sort sharedQuery.Sort) (bson.D, error) {
	field, ok := mongoFields[sort.Field]
	if !ok || field == "members" || field == "starters" {
		return nil, fmt.Errorf("unsupported sort field %q", sort.Field)
	}
	dir := sharedUtils.Ternary(sort.Desc, -1, 1)
	if field == "_id" {
		return bson.D{{Key: "_id", Value: dir}}, nil
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}, nil
}

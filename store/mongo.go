package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/fundverse/escrow-service/models"
)

const (
	colUsers         = "users"
	colContributions = "contributions"
	colTransfers     = "transfers"
	colCounters      = "counters"
)

// Mongo implements Store over MongoDB collections. Integer ids come from a
// counters collection incremented with FindOneAndUpdate, so they stay
// monotonic across restarts.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(client *mongo.Client, dbName string) *Mongo {
	return &Mongo{db: client.Database(dbName)}
}

func (m *Mongo) nextID(ctx context.Context, counter string) (uint64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var doc struct {
		Seq uint64 `bson:"seq"`
	}
	err := m.db.Collection(colCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// ---------------- Users ----------------

func (m *Mongo) PutUser(ctx context.Context, u models.RegisteredUser) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.db.Collection(colUsers).ReplaceOne(ctx, bson.M{"_id": u.Identity}, u, opts)
	return err
}

func (m *Mongo) UserByIdentity(ctx context.Context, identity string) (*models.RegisteredUser, error) {
	var u models.RegisteredUser
	err := m.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": identity}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.RegisteredUser, error) {
	var u models.RegisteredUser
	err := m.db.Collection(colUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---------------- Contributions ----------------

func (m *Mongo) NextContributionID(ctx context.Context) (uint64, error) {
	return m.nextID(ctx, colContributions)
}

func (m *Mongo) InsertContribution(ctx context.Context, c models.Contribution) error {
	_, err := m.db.Collection(colContributions).InsertOne(ctx, c)
	return err
}

func (m *Mongo) Contribution(ctx context.Context, id uint64) (*models.Contribution, error) {
	var c models.Contribution
	err := m.db.Collection(colContributions).FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *Mongo) findContributions(ctx context.Context, filter bson.M) ([]models.Contribution, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.db.Collection(colContributions).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var res []models.Contribution
	if err := cursor.All(ctx, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Mongo) ContributionsByBacker(ctx context.Context, identity string) ([]models.Contribution, error) {
	return m.findContributions(ctx, bson.M{"backer": identity})
}

func (m *Mongo) ContributionsByCampaign(ctx context.Context, campaignID uint64) ([]models.Contribution, error) {
	return m.findContributions(ctx, bson.M{"campaign_id": campaignID})
}

func (m *Mongo) SetContributionStatus(ctx context.Context, id uint64, from, to string, confirmedAt *time.Time) (bool, error) {
	set := bson.M{"status": to, "updated_at": time.Now()}
	if confirmedAt != nil {
		set["confirmed_at"] = *confirmedAt
	}
	res, err := m.db.Collection(colContributions).UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (m *Mongo) SetReceiptURL(ctx context.Context, id uint64, url string) error {
	res, err := m.db.Collection(colContributions).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"receipt_url": url, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------- Transfers ----------------

func (m *Mongo) NextTransferID(ctx context.Context) (uint64, error) {
	return m.nextID(ctx, colTransfers)
}

func (m *Mongo) InsertTransfer(ctx context.Context, t models.Transfer) error {
	_, err := m.db.Collection(colTransfers).InsertOne(ctx, t)
	return err
}

func (m *Mongo) Transfer(ctx context.Context, id uint64) (*models.Transfer, error) {
	var t models.Transfer
	err := m.db.Collection(colTransfers).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *Mongo) TransfersBySender(ctx context.Context, identity string) ([]models.Transfer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.db.Collection(colTransfers).Find(ctx, bson.M{"from": identity}, opts)
	if err != nil {
		return nil, err
	}
	var res []models.Transfer
	if err := cursor.All(ctx, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Mongo) SetTransferStatus(ctx context.Context, id uint64, status string, blockRef *uint64, confirmedAt *time.Time) error {
	set := bson.M{"status": status}
	if blockRef != nil {
		set["block_ref"] = *blockRef
	}
	if confirmedAt != nil {
		set["confirmed_at"] = *confirmedAt
	}
	res, err := m.db.Collection(colTransfers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

// Package mongo implements job.Store on the official MongoDB driver.
// Jobs live in a single document collection; partial updates go through
// $set/$inc so concurrent writers never clobber whole documents, and
// the claim uses a conditional FindOneAndUpdate so a job is handed to
// at most one worker.
//
// The caller owns the *mongo.Client lifecycle; the store never closes
// it. Pass a database handle through the constructor:
//
//	client, _ := mongod.Connect(options.Client().ApplyURI(uri))
//	store := mongo.New(client.Database("plangen"))
//	store.Migrate(ctx)
package mongo

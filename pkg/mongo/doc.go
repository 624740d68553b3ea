// Package mongo provides MongoDB connection management with environment-based
// configuration, connection retry logic, and pooling defaults that need no
// manual tuning for typical service workloads.
//
//	cfg := mongo.Config{ConnectionURL: "mongodb://localhost:27017", Database: "converter"}
//
//	db, err := mongo.NewWithDatabase(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	health := mongo.Healthcheck(db.Client())
//
// Connection failures are wrapped in package sentinel errors so callers can
// branch with errors.Is.
package mongo

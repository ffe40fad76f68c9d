// Package storage provides persistent stores on top of the sql engine.
// Each table is represented by a struct embedding engine.SQL, with methods implementing business logic for this data type.
// Records are scoped by the group id of the engine, so a few predictors can share the same database.
package storage

// Tables lists all tables managed by the package, in the order of creation
var Tables = []string{"matches"}

package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Links issued instances back to their ledger entry. Added separately because
// payments and ticket_instances reference each other.
func init() {
	m.Register(func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_3317110101")
		if err != nil {
			return err
		}

		collection.Fields.Add(&core.RelationField{
			Id:            "relation3380552157",
			Name:          "ticket_instances",
			CollectionId:  "pbc_4254029454",
			CascadeDelete: false,
			MaxSelect:     999,
		})

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_3317110101")
		if err != nil {
			return err
		}

		collection.Fields.RemoveByName("ticket_instances")

		return app.Save(collection)
	})
}

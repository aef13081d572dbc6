package model

// SharedModels lists the tables that live in the shared database only.
func SharedModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&AuditLog{},
	}
}

// TenantModels lists the tables migrated into every tenant database.
func TenantModels() []interface{} {
	return []interface{}{
		&Patient{},
		&Doctor{},
		&Appointment{},
		&Visit{},
		&VisitFinding{},
		&Bill{},
		&BillItem{},
		&PharmacyProduct{},
		&PharmacyOrder{},
		&PharmacyOrderItem{},
		&Payment{},
	}
}

package authz

// Capability keys issued by SuperAdmin. Action keys (create/edit/delete)
// carry boolean values; view keys carry a scope string (all/team/own/none).
const (
	PatientsView   = "hms.patients.view"
	PatientsCreate = "hms.patients.create"
	PatientsEdit   = "hms.patients.edit"
	PatientsDelete = "hms.patients.delete"

	DoctorsView   = "hms.doctors.view"
	DoctorsCreate = "hms.doctors.create"
	DoctorsEdit   = "hms.doctors.edit"
	DoctorsDelete = "hms.doctors.delete"

	AppointmentsView   = "hms.appointments.view"
	AppointmentsCreate = "hms.appointments.create"
	AppointmentsEdit   = "hms.appointments.edit"
	AppointmentsDelete = "hms.appointments.delete"

	OPDView   = "hms.opd.view"
	OPDCreate = "hms.opd.create"
	OPDEdit   = "hms.opd.edit"
	OPDDelete = "hms.opd.delete"

	BillingView   = "hms.billing.view"
	BillingCreate = "hms.billing.create"
	BillingEdit   = "hms.billing.edit"
	BillingDelete = "hms.billing.delete"

	PharmacyView   = "hms.pharmacy.view"
	PharmacyCreate = "hms.pharmacy.create"
	PharmacyEdit   = "hms.pharmacy.edit"
	PharmacyDelete = "hms.pharmacy.delete"

	PaymentsView   = "hms.payments.view"
	PaymentsCreate = "hms.payments.create"
	PaymentsEdit   = "hms.payments.edit"
	PaymentsDelete = "hms.payments.delete"
)

// CapabilityKey builds a capability key for a resource and action,
// e.g. CapabilityKey("patients", "view") -> "hms.patients.view".
func CapabilityKey(resource, action string) string {
	return "hms." + resource + "." + action
}

package registry

// Entity kind names as used in routes and approval requests.
const (
	KindOperationalReport  = "operational-report"
	KindKtaTta             = "kta-tta"
	KindCriticalIssue      = "critical-issue"
	KindMaintenanceRoutine = "maintenance-routine"
	KindSafetyIncident     = "safety-incident"
	KindEnergyRealization  = "energy-realization"
	KindEnergyConsumption  = "energy-consumption"
)

// defaultKinds declares the seven operational entity kinds. The energy
// figures are site-wide and carry no routing department.
func defaultKinds() []*Kind {
	return []*Kind{
		{
			Name:             KindOperationalReport,
			Table:            "operational_reports",
			DepartmentColumn: "department_id",
			Fields: []Field{
				{Name: "report_date", Type: FieldDate},
				{Name: "shift", Type: FieldEnum, Enum: []string{"DAY", "NIGHT"}},
				{Name: "total_working", Type: FieldNumber},
				{Name: "total_standby", Type: FieldNumber},
				{Name: "total_breakdown", Type: FieldNumber},
				{Name: "physical_availability", Type: FieldNumber},
				{Name: "remarks", Type: FieldString},
			},
		},
		{
			Name:             KindKtaTta,
			Table:            "kta_tta_reports",
			DepartmentColumn: "department_id",
			Fields: []Field{
				{Name: "report_date", Type: FieldDate},
				{Name: "category", Type: FieldEnum, Enum: []string{"KTA", "TTA"}},
				{Name: "description", Type: FieldString},
				{Name: "location", Type: FieldString},
				{Name: "status", Type: FieldEnum, Enum: []string{"OPEN", "IN_PROGRESS", "CLOSED"}},
				{Name: "followed_up", Type: FieldBool},
			},
		},
		{
			Name:             KindCriticalIssue,
			Table:            "critical_issues",
			DepartmentColumn: "department_id",
			Fields: []Field{
				{Name: "raised_date", Type: FieldDate},
				{Name: "title", Type: FieldString},
				{Name: "description", Type: FieldString},
				{Name: "severity", Type: FieldEnum, Enum: []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}},
				{Name: "status", Type: FieldEnum, Enum: []string{"OPEN", "MONITORED", "RESOLVED"}},
				{Name: "target_date", Type: FieldDate},
			},
		},
		{
			Name:             KindMaintenanceRoutine,
			Table:            "maintenance_routines",
			DepartmentColumn: "department_id",
			Fields: []Field{
				{Name: "scheduled_date", Type: FieldDate},
				{Name: "equipment_code", Type: FieldString},
				{Name: "work_order", Type: FieldString},
				{Name: "duration_hours", Type: FieldNumber},
				{Name: "status", Type: FieldEnum, Enum: []string{"PLANNED", "IN_PROGRESS", "DONE", "DEFERRED"}},
				{Name: "notes", Type: FieldString},
			},
		},
		{
			Name:             KindSafetyIncident,
			Table:            "safety_incidents",
			DepartmentColumn: "department_id",
			Fields: []Field{
				{Name: "incident_date", Type: FieldDate},
				{Name: "category", Type: FieldEnum, Enum: []string{"NEAR_MISS", "FIRST_AID", "MEDICAL_TREATMENT", "LOST_TIME"}},
				{Name: "description", Type: FieldString},
				{Name: "man_hours_lost", Type: FieldNumber},
				{Name: "reported", Type: FieldBool},
			},
		},
		{
			Name:  KindEnergyRealization,
			Table: "energy_realizations",
			Fields: []Field{
				{Name: "period", Type: FieldDate},
				{Name: "fuel_consumed", Type: FieldNumber},
				{Name: "electricity_generated", Type: FieldNumber},
				{Name: "target", Type: FieldNumber},
			},
		},
		{
			Name:  KindEnergyConsumption,
			Table: "energy_consumptions",
			Fields: []Field{
				{Name: "period", Type: FieldDate},
				{Name: "area", Type: FieldString},
				{Name: "kwh_used", Type: FieldNumber},
				{Name: "cost", Type: FieldNumber},
			},
		},
	}
}

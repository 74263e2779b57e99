package testutil

// AuthMigrations returns the DDL for the auth tables.
func AuthMigrations() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'patient',
			phone VARCHAR(50),
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ,
			CONSTRAINT users_role_valid CHECK (role IN ('patient', 'dentist', 'receptionist', 'radiologist', 'lab', 'admin')),
			CONSTRAINT users_status_valid CHECK (status IN ('active', 'inactive'))
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			refresh_token_hash VARCHAR(64) NOT NULL,
			user_agent TEXT,
			ip_address VARCHAR(45),
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_refresh_token_hash ON sessions(refresh_token_hash);

		CREATE TABLE IF NOT EXISTS token_blacklist (
			token_jti UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`}
}

// InventoryMigrations returns the DDL for the inventory tables.
func InventoryMigrations() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS suppliers (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			contact_person VARCHAR(255),
			phone VARCHAR(50),
			email VARCHAR(255),
			address TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS sub_categories (
			id UUID PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS inventory_items (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			unit VARCHAR(50) NOT NULL DEFAULT 'piece',
			unit_price_cents BIGINT NOT NULL DEFAULT 0,
			sub_category_id UUID REFERENCES sub_categories(id),
			supplier_id UUID REFERENCES suppliers(id),
			expiry_alert_days INT NOT NULL DEFAULT 30,
			batch_tracking BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_items_supplier ON inventory_items(supplier_id);

		CREATE TABLE IF NOT EXISTS inventory_batches (
			id UUID PRIMARY KEY,
			item_id UUID NOT NULL REFERENCES inventory_items(id) ON DELETE CASCADE,
			batch_number VARCHAR(100) NOT NULL,
			current_stock INT NOT NULL DEFAULT 0,
			minimum_stock INT NOT NULL DEFAULT 0,
			unit_price_cents BIGINT,
			expiry_date DATE,
			received_date DATE NOT NULL DEFAULT CURRENT_DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT batches_batch_number_unique UNIQUE (item_id, batch_number),
			CONSTRAINT batches_current_stock_non_negative CHECK (current_stock >= 0)
		);
		CREATE INDEX IF NOT EXISTS idx_batches_item ON inventory_batches(item_id);
		CREATE INDEX IF NOT EXISTS idx_batches_expiry ON inventory_batches(expiry_date);

		CREATE TABLE IF NOT EXISTS stock_receivings (
			id UUID PRIMARY KEY,
			receiving_number VARCHAR(50) UNIQUE NOT NULL,
			supplier_id UUID REFERENCES suppliers(id),
			received_by UUID NOT NULL,
			notes TEXT,
			total_amount_cents BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS stock_receiving_lines (
			id UUID PRIMARY KEY,
			receiving_id UUID NOT NULL REFERENCES stock_receivings(id) ON DELETE CASCADE,
			item_id UUID NOT NULL REFERENCES inventory_items(id),
			batch_number VARCHAR(100) NOT NULL,
			quantity INT NOT NULL,
			unit_price_cents BIGINT,
			expiry_date DATE,
			line_total_cents BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT receiving_lines_quantity_positive CHECK (quantity > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_receiving_lines_receiving ON stock_receiving_lines(receiving_id);

		CREATE TABLE IF NOT EXISTS stock_adjustments (
			id UUID PRIMARY KEY,
			batch_id UUID NOT NULL REFERENCES inventory_batches(id),
			item_id UUID NOT NULL REFERENCES inventory_items(id),
			previous_stock INT NOT NULL,
			new_stock INT NOT NULL,
			quantity INT NOT NULL,
			reason VARCHAR(50) NOT NULL,
			notes TEXT,
			performed_by UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT adjustments_reason_valid CHECK (reason IN ('treatment', 'wasted', 'expired', 'damaged', 'other'))
		);
		CREATE INDEX IF NOT EXISTS idx_adjustments_batch ON stock_adjustments(batch_id);

		CREATE TABLE IF NOT EXISTS activity_log (
			id UUID PRIMARY KEY,
			actor_id UUID NOT NULL,
			actor_name VARCHAR(255) NOT NULL,
			action VARCHAR(100) NOT NULL,
			resource VARCHAR(100) NOT NULL,
			resource_id UUID,
			details JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_activity_log_created ON activity_log(created_at DESC);
	`}
}

// StaffMigrations returns the DDL for the staff tables.
func StaffMigrations() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY,
			employee_number VARCHAR(50) UNIQUE NOT NULL,
			user_id UUID,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			phone VARCHAR(50),
			position VARCHAR(100) NOT NULL,
			hire_date DATE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT employees_status_valid CHECK (status IN ('active', 'on_leave', 'terminated'))
		);

		CREATE TABLE IF NOT EXISTS leave_requests (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			leave_type VARCHAR(50) NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			days INT NOT NULL,
			reason TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			reviewer_id UUID,
			review_note TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT leave_status_valid CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled'))
		);
		CREATE INDEX IF NOT EXISTS idx_leave_employee ON leave_requests(employee_id);

		CREATE TABLE IF NOT EXISTS leave_balances (
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			year INT NOT NULL,
			total_days INT NOT NULL DEFAULT 25,
			used_days INT NOT NULL DEFAULT 0,
			pending_days INT NOT NULL DEFAULT 0,
			PRIMARY KEY (employee_id, year)
		);

		CREATE TABLE IF NOT EXISTS shift_assignments (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			shift_date DATE NOT NULL,
			start_time VARCHAR(5) NOT NULL,
			end_time VARCHAR(5) NOT NULL,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_shifts_employee_date ON shift_assignments(employee_id, shift_date);
	`}
}

// AppointmentMigrations returns the DDL for the appointment tables.
func AppointmentMigrations() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY,
			patient_id UUID NOT NULL,
			dentist_id UUID NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
			treatment VARCHAR(255),
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT appointments_status_valid CHECK (status IN ('scheduled', 'confirmed', 'completed', 'cancelled', 'no_show'))
		);
		CREATE INDEX IF NOT EXISTS idx_appointments_dentist ON appointments(dentist_id, starts_at);
		CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments(patient_id);
	`}
}

// ReportMigrations returns the DDL for the radiology report tables.
func ReportMigrations() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS radiology_reports (
			id UUID PRIMARY KEY,
			patient_id UUID NOT NULL,
			authored_by UUID NOT NULL,
			study_type VARCHAR(100) NOT NULL,
			findings TEXT NOT NULL,
			impression TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'draft',
			finalized_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT reports_status_valid CHECK (status IN ('draft', 'final'))
		);
		CREATE INDEX IF NOT EXISTS idx_reports_patient ON radiology_reports(patient_id);
	`}
}

// AllMigrations returns the DDL for every table, in dependency order.
func AllMigrations() []string {
	migrations := make([]string, 0)
	migrations = append(migrations, AuthMigrations()...)
	migrations = append(migrations, InventoryMigrations()...)
	migrations = append(migrations, StaffMigrations()...)
	migrations = append(migrations, AppointmentMigrations()...)
	migrations = append(migrations, ReportMigrations()...)
	return migrations
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/iurnickita/airbilling/internal/model"
	"github.com/iurnickita/airbilling/internal/store/config"
)

type Store interface {
	AuthRegister(ctx context.Context, login string, password string) (string, error)
	AuthLogin(ctx context.Context, login string, password string) (string, error)
	MovementGetByID(ctx context.Context, id int64) (model.Movement, error)
	MovementsGetByRotationID(ctx context.Context, rotationID string) ([]model.Movement, error)
	MovementsGetUninvoiced(ctx context.Context) ([]model.Movement, error)
	MovementsMarkInvoiced(ctx context.Context, ids []int64) error
	AircraftGetByRegistration(ctx context.Context, registration string) (model.AircraftInfo, error)
	InvoiceInsert(ctx context.Context, invoice model.Invoice) error
	InvoiceGetByID(ctx context.Context, id string) (model.Invoice, error)
	InvoiceLinesInsert(ctx context.Context, lines []model.InvoiceLine) error
	InvoiceDelete(ctx context.Context, id string) error
	InvoiceNextSeq(ctx context.Context) (int64, error)
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrAlreadyExists = errors.New("already exists")
)

type store struct {
	database *sql.DB
}

func NewStore(cfg config.Config) (Store, error) {
	db, err := sql.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}

	// Account table
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS auth (" +
			" login VARCHAR (20) PRIMARY KEY," +
			" uuid SERIAL UNIQUE," +
			" password VARCHAR (30) NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}

	// Movement table. Rows are written by the movement workflow and become
	// read-only for billing once is_invoiced is set
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS movement (" +
			" id BIGSERIAL PRIMARY KEY," +
			" scheduled_at TIMESTAMP NOT NULL," +
			" kind VARCHAR (3) NOT NULL," +
			" registration VARCHAR (10) NOT NULL," +
			" mtow_kg INTEGER," +
			" traffic_type VARCHAR (3) NOT NULL," +
			" rotation_id VARCHAR (20)," +
			" airline_code VARCHAR (3) NOT NULL," +
			" airline_name VARCHAR (50) NOT NULL," +
			" aircraft_type VARCHAR (10) NOT NULL," +
			" pax_full INTEGER NOT NULL DEFAULT 0," +
			" pax_half INTEGER NOT NULL DEFAULT 0," +
			" pax_transit INTEGER NOT NULL DEFAULT 0," +
			" mail_kg DOUBLE PRECISION NOT NULL DEFAULT 0," +
			" freight_kg DOUBLE PRECISION NOT NULL DEFAULT 0," +
			" is_invoiced BOOLEAN NOT NULL DEFAULT FALSE" +
			" );")
	if err != nil {
		return nil, err
	}

	// Secondary aircraft reference table, MTOW fallback of last resort
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS aircraft (" +
			" registration VARCHAR (10) PRIMARY KEY," +
			" mtow_kg INTEGER," +
			" aircraft_type VARCHAR (10)" +
			" );")
	if err != nil {
		return nil, err
	}

	// Invoice header and lines
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS invoice (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" number VARCHAR (20) NOT NULL UNIQUE," +
			" client_name VARCHAR (100) NOT NULL," +
			" client_address VARCHAR (200) NOT NULL," +
			" issued_at TIMESTAMP NOT NULL," +
			" total DOUBLE PRECISION NOT NULL," +
			" status VARCHAR (10) NOT NULL," +
			" doc_type VARCHAR (10) NOT NULL," +
			" rotation_id VARCHAR (20)," +
			" movement_id BIGINT" +
			" );")
	if err != nil {
		return nil, err
	}
	// One finalizing invoice per rotation. A concurrent second save fails
	// with 23505 instead of producing a duplicate
	_, err = db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS invoice_rotation_doc" +
			" ON invoice (rotation_id, doc_type)" +
			" WHERE doc_type <> 'PROFORMA' AND rotation_id IS NOT NULL;")
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS invoice_line (" +
			" id VARCHAR (36) PRIMARY KEY," +
			" invoice_id VARCHAR (36) NOT NULL," +
			" code VARCHAR (10) NOT NULL," +
			" label VARCHAR (50) NOT NULL," +
			" quantity DOUBLE PRECISION NOT NULL," +
			" unit_price DOUBLE PRECISION NOT NULL," +
			" total DOUBLE PRECISION NOT NULL," +
			" item_group VARCHAR (10) NOT NULL," +
			" sort_order INTEGER NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}
	_, err = db.Exec("CREATE SEQUENCE IF NOT EXISTS invoice_number_seq;")
	if err != nil {
		return nil, err
	}

	return &store{
		database: db,
	}, nil
}

func (store *store) AuthRegister(ctx context.Context, login string, password string) (string, error) {
	row := store.database.QueryRowContext(ctx,
		"INSERT INTO auth (login, password)"+
			" VALUES ($1, $2)"+
			" RETURNING uuid",
		login,
		password)

	var uuid int
	err := row.Scan(&uuid)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return "", ErrAlreadyExists
			}
		}

		return "", err
	}

	return strconv.Itoa(uuid), nil
}

func (store *store) AuthLogin(ctx context.Context, login string, password string) (string, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT uuid FROM auth"+
			" WHERE login = $1"+
			"   AND password = $2",
		login,
		password)
	var uuid int
	err := row.Scan(&uuid)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNoRows
		}
		return "", err
	}

	return strconv.Itoa(uuid), nil
}

const movementColumns = " id, scheduled_at, kind, registration, mtow_kg, traffic_type, rotation_id," +
	" airline_code, airline_name, aircraft_type, pax_full, pax_half, pax_transit," +
	" mail_kg, freight_kg, is_invoiced"

func scanMovement(row interface{ Scan(...any) error }) (model.Movement, error) {
	var movement model.Movement
	var mtowKg sql.NullInt64
	var rotationID sql.NullString
	err := row.Scan(&movement.ID,
		&movement.ScheduledAt,
		&movement.Kind,
		&movement.Registration,
		&mtowKg,
		&movement.TrafficType,
		&rotationID,
		&movement.AirlineCode,
		&movement.AirlineName,
		&movement.AircraftType,
		&movement.PaxFull,
		&movement.PaxHalf,
		&movement.PaxTransit,
		&movement.MailKg,
		&movement.FreightKg,
		&movement.IsInvoiced)
	if err != nil {
		return model.Movement{}, err
	}
	if mtowKg.Valid {
		value := int(mtowKg.Int64)
		movement.MTOWKg = &value
	}
	if rotationID.Valid {
		value := rotationID.String
		movement.RotationID = &value
	}
	return movement, nil
}

func (store *store) MovementGetByID(ctx context.Context, id int64) (model.Movement, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT"+movementColumns+
			" FROM movement"+
			" WHERE id = $1",
		id)
	movement, err := scanMovement(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Movement{}, ErrNoRows
		}
		return model.Movement{}, err
	}
	return movement, nil
}

func (store *store) MovementsGetByRotationID(ctx context.Context, rotationID string) ([]model.Movement, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT"+movementColumns+
			" FROM movement"+
			" WHERE rotation_id = $1"+
			" ORDER BY scheduled_at",
		rotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []model.Movement
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return movements, nil
}

func (store *store) MovementsGetUninvoiced(ctx context.Context) ([]model.Movement, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT"+movementColumns+
			" FROM movement"+
			" WHERE is_invoiced = FALSE"+
			" ORDER BY scheduled_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []model.Movement
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return movements, nil
}

func (store *store) MovementsMarkInvoiced(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		_, err := store.database.ExecContext(ctx,
			"UPDATE movement"+
				" SET is_invoiced = TRUE"+
				" WHERE id = $1",
			id)
		if err != nil {
			return err
		}
	}
	return nil
}

func (store *store) AircraftGetByRegistration(ctx context.Context, registration string) (model.AircraftInfo, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT mtow_kg, aircraft_type FROM aircraft"+
			" WHERE registration = $1",
		registration)
	var mtowKg sql.NullInt64
	var aircraftType sql.NullString
	err := row.Scan(&mtowKg, &aircraftType)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.AircraftInfo{}, ErrNoRows
		}
		return model.AircraftInfo{}, err
	}
	var info model.AircraftInfo
	if mtowKg.Valid {
		value := int(mtowKg.Int64)
		info.MTOWKg = &value
	}
	if aircraftType.Valid {
		info.AircraftType = aircraftType.String
	}
	return info, nil
}

func (store *store) InvoiceInsert(ctx context.Context, invoice model.Invoice) error {
	_, err := store.database.ExecContext(ctx,
		"INSERT INTO invoice (id, number, client_name, client_address, issued_at,"+
			" total, status, doc_type, rotation_id, movement_id)"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		invoice.ID,
		invoice.Number,
		invoice.ClientName,
		invoice.ClientAddress,
		invoice.IssuedAt,
		invoice.Total,
		invoice.Status,
		invoice.DocType,
		invoice.RotationID,
		invoice.MovementID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return ErrAlreadyExists
			}
		}
		return err
	}
	return nil
}

func (store *store) InvoiceGetByID(ctx context.Context, id string) (model.Invoice, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT id, number, client_name, client_address, issued_at,"+
			" total, status, doc_type, rotation_id, movement_id"+
			" FROM invoice"+
			" WHERE id = $1",
		id)
	var invoice model.Invoice
	var rotationID sql.NullString
	var movementID sql.NullInt64
	err := row.Scan(&invoice.ID,
		&invoice.Number,
		&invoice.ClientName,
		&invoice.ClientAddress,
		&invoice.IssuedAt,
		&invoice.Total,
		&invoice.Status,
		&invoice.DocType,
		&rotationID,
		&movementID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Invoice{}, ErrNoRows
		}
		return model.Invoice{}, err
	}
	if rotationID.Valid {
		value := rotationID.String
		invoice.RotationID = &value
	}
	if movementID.Valid {
		value := movementID.Int64
		invoice.MovementID = &value
	}
	return invoice, nil
}

func (store *store) InvoiceLinesInsert(ctx context.Context, lines []model.InvoiceLine) error {
	for _, line := range lines {
		_, err := store.database.ExecContext(ctx,
			"INSERT INTO invoice_line (id, invoice_id, code, label, quantity,"+
				" unit_price, total, item_group, sort_order)"+
				" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
			line.ID,
			line.InvoiceID,
			line.Code,
			line.Label,
			line.Quantity,
			line.UnitPrice,
			line.Total,
			line.Group,
			line.SortOrder)
		if err != nil {
			return err
		}
	}
	return nil
}

func (store *store) InvoiceDelete(ctx context.Context, id string) error {
	_, err := store.database.ExecContext(ctx,
		"DELETE FROM invoice_line WHERE invoice_id = $1", id)
	if err != nil {
		return err
	}
	_, err = store.database.ExecContext(ctx,
		"DELETE FROM invoice WHERE id = $1", id)
	return err
}

func (store *store) InvoiceNextSeq(ctx context.Context) (int64, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT nextval('invoice_number_seq')")
	var seq int64
	err := row.Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createAccountTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		community_id TEXT NOT NULL,
		wallet_address TEXT,
		balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createCustodialWalletTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE custodial_wallets (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		address TEXT UNIQUE NOT NULL,
		encrypted_private_key TEXT NOT NULL,
		is_default BOOLEAN DEFAULT false,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createChainProfileTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE chain_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rpc_url TEXT NOT NULL,
		chain_id INTEGER NOT NULL,
		factory_address TEXT NOT NULL,
		explorer_url TEXT,
		encrypted_admin_key TEXT NOT NULL,
		admin_address TEXT NOT NULL,
		created_at DATETIME
	);`)
}

func createCommunityTokenTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE community_tokens (
		id TEXT PRIMARY KEY,
		community_id TEXT UNIQUE NOT NULL,
		chain_profile_id TEXT NOT NULL,
		token_address TEXT,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSettlementTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settlement_transactions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		amount INTEGER NOT NULL,
		settled_amount INTEGER NOT NULL DEFAULT 0,
		tx_hash TEXT,
		permit_tx_hash TEXT,
		from_account_id TEXT,
		to_account_id TEXT,
		product_id TEXT,
		community_id TEXT NOT NULL,
		authorization_deadline DATETIME NOT NULL,
		failure_reason TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createProductTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE products (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		community_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price INTEGER NOT NULL,
		is_available BOOLEAN DEFAULT true,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func seedAccount(t *testing.T, db *gorm.DB, communityID uuid.UUID, email, role string, balance int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now()
	mustExec(t, db, `INSERT INTO accounts (id, email, name, role, community_id, wallet_address, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), email, email, role, communityID.String(), "", balance, now, now)
	return id
}

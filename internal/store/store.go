// Package store 按股票保存日线记录（K线加指标列）的本地SQLite存储。
package store

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"stock-quant-backend/internal/model"
)

const DefaultDBFileName = "records.db"

// ResolvePath 目录路径补上默认库文件名
func ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.Ext(p) == "" {
		return filepath.Join(p, DefaultDBFileName)
	}
	if fi, err := os.Stat(p); err == nil && fi.IsDir() {
		return filepath.Join(p, DefaultDBFileName)
	}
	return p
}

// Store 日线记录存储，(code, date)唯一，date升序即时间序
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）记录库
func Open(path string) (*Store, error) {
	path = ResolvePath(path)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path))
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_records (
			code TEXT NOT NULL,
			date TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			open REAL NOT NULL,
			close REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			volume REAL NOT NULL,
			amount REAL NOT NULL,
			ma5 REAL, ma10 REAL,
			diff REAL, dea REAL, macd REAL,
			boll_upper REAL, boll_mid REAL, boll_lower REAL,
			k REAL, d REAL, j REAL,
			rsi REAL, obv REAL,
			PRIMARY KEY (code, date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_records_date ON daily_records(date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("初始化表结构失败: %w", err)
		}
	}
	return nil
}

// NaN的指标暖机值存为NULL，读出时还原为NaN
func toDB(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromDB(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

const insertSQL = `INSERT INTO daily_records
	(code, date, name, open, close, high, low, volume, amount,
	 ma5, ma10, diff, dea, macd, boll_upper, boll_mid, boll_lower, k, d, j, rsi, obv)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(code, date) DO UPDATE SET
	 name=excluded.name, open=excluded.open, close=excluded.close,
	 high=excluded.high, low=excluded.low, volume=excluded.volume, amount=excluded.amount,
	 ma5=excluded.ma5, ma10=excluded.ma10, diff=excluded.diff, dea=excluded.dea,
	 macd=excluded.macd, boll_upper=excluded.boll_upper, boll_mid=excluded.boll_mid,
	 boll_lower=excluded.boll_lower, k=excluded.k, d=excluded.d, j=excluded.j,
	 rsi=excluded.rsi, obv=excluded.obv`

// Append 追加（或覆盖同日）记录
func (s *Store) Append(code, name string, rows []model.DailyRecord) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(code, r.Date, name,
			r.Open, r.Close, r.High, r.Low, r.Volume, r.Amount,
			toDB(r.MA5), toDB(r.MA10), toDB(r.Diff), toDB(r.DEA), toDB(r.MACD),
			toDB(r.BollUpper), toDB(r.BollMid), toDB(r.BollLower),
			toDB(r.K), toDB(r.D), toDB(r.J), toDB(r.RSI), toDB(r.OBV)); err != nil {
			return fmt.Errorf("写入 %s %s 失败: %w", code, r.Date, err)
		}
	}
	return tx.Commit()
}

// Save 整表替换某只股票的记录
func (s *Store) Save(code, name string, rows []model.DailyRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_records WHERE code = ?`, code); err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(code, r.Date, name,
			r.Open, r.Close, r.High, r.Low, r.Volume, r.Amount,
			toDB(r.MA5), toDB(r.MA10), toDB(r.Diff), toDB(r.DEA), toDB(r.MACD),
			toDB(r.BollUpper), toDB(r.BollMid), toDB(r.BollLower),
			toDB(r.K), toDB(r.D), toDB(r.J), toDB(r.RSI), toDB(r.OBV)); err != nil {
			return fmt.Errorf("写入 %s %s 失败: %w", code, r.Date, err)
		}
	}
	return tx.Commit()
}

// Load 按日期升序读取某只股票的全部记录，无数据时返回空切片
func (s *Store) Load(code string) ([]model.DailyRecord, error) {
	rows, err := s.db.Query(`SELECT date, open, close, high, low, volume, amount,
		ma5, ma10, diff, dea, macd, boll_upper, boll_mid, boll_lower, k, d, j, rsi, obv
		FROM daily_records WHERE code = ? ORDER BY date ASC`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailyRecord
	for rows.Next() {
		var r model.DailyRecord
		var ind [13]sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.Open, &r.Close, &r.High, &r.Low, &r.Volume, &r.Amount,
			&ind[0], &ind[1], &ind[2], &ind[3], &ind[4],
			&ind[5], &ind[6], &ind[7],
			&ind[8], &ind[9], &ind[10], &ind[11], &ind[12]); err != nil {
			return nil, err
		}
		r.MA5, r.MA10 = fromDB(ind[0]), fromDB(ind[1])
		r.Diff, r.DEA, r.MACD = fromDB(ind[2]), fromDB(ind[3]), fromDB(ind[4])
		r.BollUpper, r.BollMid, r.BollLower = fromDB(ind[5]), fromDB(ind[6]), fromDB(ind[7])
		r.K, r.D, r.J = fromDB(ind[8]), fromDB(ind[9]), fromDB(ind[10])
		r.RSI, r.OBV = fromDB(ind[11]), fromDB(ind[12])
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadName 读取股票名称，无记录时返回空串
func (s *Store) LoadName(code string) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM daily_records WHERE code = ? LIMIT 1`, code).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

// LastDate 某只股票最新记录日期，无记录时返回空串
func (s *Store) LastDate(code string) (string, error) {
	var date sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM daily_records WHERE code = ?`, code).Scan(&date)
	if err != nil {
		return "", err
	}
	return date.String, nil
}

// Codes 库中已有记录的全部股票代码
func (s *Store) Codes() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT code FROM daily_records ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

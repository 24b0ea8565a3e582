package sqlite

const schema = `
-- Clustering runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    input_path TEXT NOT NULL DEFAULT '',
    algorithm TEXT NOT NULL,
    threshold REAL NOT NULL CHECK(threshold >= 0.0 AND threshold <= 1.0),
    tolerance REAL NOT NULL CHECK(tolerance > 0.0),
    strategy TEXT NOT NULL DEFAULT 'greedy',
    stats TEXT NOT NULL DEFAULT '{}',
    warning_count INTEGER NOT NULL DEFAULT 0 CHECK(warning_count >= 0)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

-- Clusters per run; position preserves emission order
CREATE TABLE IF NOT EXISTS clusters (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    canonical_name TEXT NOT NULL,
    aliases TEXT NOT NULL DEFAULT '[]',
    party_types TEXT NOT NULL DEFAULT '[]',
    addresses TEXT NOT NULL DEFAULT '[]',
    case_types TEXT NOT NULL DEFAULT '[]',
    years TEXT NOT NULL DEFAULT '[]',
    total_count INTEGER NOT NULL DEFAULT 0 CHECK(total_count >= 0),
    members TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_clusters_name ON clusters(canonical_name);
`

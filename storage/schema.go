package storage

// Schema is the DDL for the tables used by PostgresStore and SQLStore.
// Apply it with your migration tooling before starting the engine.
const Schema = `
CREATE TABLE IF NOT EXISTS vibegame_sessions (
    id         UUID PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    mode       TEXT NOT NULL CHECK (mode IN ('blockly', 'javascript')),
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vibegame_artifacts (
    session_id UUID PRIMARY KEY REFERENCES vibegame_sessions(id) ON DELETE CASCADE,
    mode       TEXT NOT NULL,
    content    TEXT NOT NULL,
    version    INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vibegame_messages (
    id         UUID PRIMARY KEY,
    session_id UUID NOT NULL REFERENCES vibegame_sessions(id) ON DELETE CASCADE,
    role       TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'tool')),
    text       TEXT NOT NULL DEFAULT '',
    position   INTEGER NOT NULL,
    tool_calls JSONB,
    truncated  BOOLEAN NOT NULL DEFAULT FALSE,
    metadata   JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (session_id, position)
);

CREATE TABLE IF NOT EXISTS vibegame_checkpoints (
    id               UUID PRIMARY KEY,
    session_id       UUID NOT NULL REFERENCES vibegame_sessions(id) ON DELETE CASCADE,
    label            TEXT NOT NULL,
    message_position INTEGER NOT NULL,
    snapshot_mode    TEXT NOT NULL,
    snapshot_content TEXT NOT NULL,
    snapshot_version INTEGER NOT NULL,
    seq              BIGSERIAL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vibegame_messages_session
    ON vibegame_messages (session_id, position);
CREATE INDEX IF NOT EXISTS idx_vibegame_checkpoints_session
    ON vibegame_checkpoints (session_id, seq);
`

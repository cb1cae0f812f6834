package store

const schema = `
CREATE TABLE IF NOT EXISTS places (
    place_id           TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    address            TEXT NOT NULL DEFAULT '',
    rating             REAL NOT NULL DEFAULT 0,
    user_ratings_total INTEGER NOT NULL DEFAULT 0,
    lat                REAL NOT NULL DEFAULT 0,
    lng                REAL NOT NULL DEFAULT 0,
    query              TEXT NOT NULL DEFAULT '',
    collected_at       DATETIME NOT NULL,
    alerted            BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_places_query ON places(query);
CREATE INDEX IF NOT EXISTS idx_places_collected_at ON places(collected_at);

CREATE TABLE IF NOT EXISTS reviews (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    place_id     TEXT NOT NULL REFERENCES places(place_id),
    author       TEXT NOT NULL DEFAULT '',
    rating       INTEGER NOT NULL DEFAULT 0,
    text         TEXT NOT NULL DEFAULT '',
    time         INTEGER NOT NULL DEFAULT 0,
    collected_at DATETIME NOT NULL,
    UNIQUE(place_id, author, time)
);

CREATE INDEX IF NOT EXISTS idx_reviews_place ON reviews(place_id);
CREATE INDEX IF NOT EXISTS idx_reviews_time ON reviews(time);
`

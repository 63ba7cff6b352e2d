package database

import "errors"

var (
	// ErrPoolExhausted - не удалось получить соединение из пула за отведенное время
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrQueryTimeout - запрос превысил таймаут своего класса и был отменен
	ErrQueryTimeout = errors.New("query timeout")
	// ErrConnection - БД недоступна при установке соединения
	ErrConnection = errors.New("database unavailable")
	// ErrBackendQuery - ошибка запроса или хранилища
	ErrBackendQuery = errors.New("backend query error")
)

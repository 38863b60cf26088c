package models

import "strconv"

type (
	UserID         int64
	ProductID      int64
	BookingID      int64
	ReviewID       int64
	NotificationID int64
	JobID          int64
)

func (id UserID) Int64() int64         { return int64(id) }
func (id ProductID) Int64() int64      { return int64(id) }
func (id BookingID) Int64() int64      { return int64(id) }
func (id ReviewID) Int64() int64       { return int64(id) }
func (id NotificationID) Int64() int64 { return int64(id) }
func (id JobID) Int64() int64          { return int64(id) }

func (id UserID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id ProductID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id BookingID) String() string { return strconv.FormatInt(int64(id), 10) }

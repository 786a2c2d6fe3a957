/*
 * @Description: 入站通知消息与调用结果
 * @Author: 安知鱼
 * @Date: 2025-11-02 10:40:03
 * @LastEditTime: 2025-11-04 11:02:55
 * @LastEditors: 安知鱼
 */
package model

import "encoding/json"

// StorageEvent 是单个图片的存储变更通知
type StorageEvent struct {
	EventType string `json:"eventType"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Size      int64  `json:"size"`
}

// RibbonRequest 是“为前缀生成条带图”的请求
type RibbonRequest struct {
	Prefix string `json:"prefix"`
}

// S3Notification 是 S3 事件通知的信封结构，只声明流水线关心的字段
type S3Notification struct {
	Records []S3EventRecord `json:"Records"`
}

type S3EventRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size"`
		} `json:"object"`
	} `json:"s3"`
}

// ToStorageEvent 将 S3 记录转换为内部事件
func (r S3EventRecord) ToStorageEvent() StorageEvent {
	return StorageEvent{
		EventType: r.EventName,
		Bucket:    r.S3.Bucket.Name,
		Key:       r.S3.Object.Key,
		Size:      r.S3.Object.Size,
	}
}

// SNSNotification 是 SNS 推送的信封，条带图请求的前缀放在 Message 中
type SNSNotification struct {
	Records []struct {
		Sns struct {
			Message string `json:"Message"`
		} `json:"Sns"`
	} `json:"Records"`
}

// ParseStorageEvents 同时接受 S3 通知信封和单条 StorageEvent
func ParseStorageEvents(body []byte) ([]StorageEvent, error) {
	var envelope S3Notification
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Records) > 0 {
		events := make([]StorageEvent, 0, len(envelope.Records))
		for _, rec := range envelope.Records {
			events = append(events, rec.ToStorageEvent())
		}
		return events, nil
	}

	var single StorageEvent
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single.EventType == "" && single.Key == "" {
		return nil, nil
	}
	return []StorageEvent{single}, nil
}

// ParseRibbonRequests 同时接受 SNS 信封和单条 RibbonRequest
func ParseRibbonRequests(body []byte) ([]RibbonRequest, error) {
	var envelope SNSNotification
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Records) > 0 {
		reqs := make([]RibbonRequest, 0, len(envelope.Records))
		for _, rec := range envelope.Records {
			reqs = append(reqs, RibbonRequest{Prefix: rec.Sns.Message})
		}
		return reqs, nil
	}

	var single RibbonRequest
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	if single.Prefix == "" {
		return nil, nil
	}
	return []RibbonRequest{single}, nil
}

// InvocationResult 是一次调用成功后的确认
type InvocationResult struct {
	StatusCode int    `json:"statusCode"`
	EventType  string `json:"eventType,omitempty"`
	Key        string `json:"key,omitempty"`
	DerivedKey string `json:"derivedKey,omitempty"`
}

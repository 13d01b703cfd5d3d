package grpc

import (
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
)

const (
	protoPackage  = "docshare.access.v1"
	protoFileName = "docshare/access/v1/access.proto"
	timestampFile = "google/protobuf/timestamp.proto"
)

// Message descriptors of docshare/access/v1/access.proto:
//
//	message AuthenticateRequest { string token = 1; }
//	message AuthorizeRequest { string token = 1; string document_id = 2; repeated string required = 3; }
//	message Principal { string user_id = 1; string username = 2; string email = 3; string role = 4; string document_id = 5; string level = 6; }
//	message VerifyResourceTokenRequest { string token = 1; }
//	message VerifyResourceTokenResponse { string resource_id = 1; google.protobuf.Timestamp expires_at = 2; }
var (
	authenticateRequestDesc protoreflect.MessageDescriptor
	authorizeRequestDesc    protoreflect.MessageDescriptor
	principalDesc           protoreflect.MessageDescriptor
	verifyRequestDesc       protoreflect.MessageDescriptor
	verifyResponseDesc      protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(accessFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(err)
	}

	msgs := fd.Messages()
	authenticateRequestDesc = msgs.ByName("AuthenticateRequest")
	authorizeRequestDesc = msgs.ByName("AuthorizeRequest")
	principalDesc = msgs.ByName("Principal")
	verifyRequestDesc = msgs.ByName("VerifyResourceTokenRequest")
	verifyResponseDesc = msgs.ByName("VerifyResourceTokenResponse")
}

func accessFileProto() *descriptorpb.FileDescriptorProto {
	field := func(name string, num int32, label descriptorpb.FieldDescriptorProto_Label, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Label:  label.Enum(),
			Type:   typ.Enum(),
		}
	}
	str := func(name string, num int32) *descriptorpb.FieldDescriptorProto {
		return field(name, num, descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL, descriptorpb.FieldDescriptorProto_TYPE_STRING)
	}
	message := func(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
		return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
	}
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String("." + protoPackage + "." + in),
			OutputType: proto.String("." + protoPackage + "." + out),
		}
	}

	required := field("required", 3, descriptorpb.FieldDescriptorProto_LABEL_REPEATED, descriptorpb.FieldDescriptorProto_TYPE_STRING)
	expiresAt := field("expires_at", 2, descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	expiresAt.TypeName = proto.String(".google.protobuf.Timestamp")

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFileName),
		Package:    proto.String(protoPackage),
		Syntax:     proto.String("proto3"),
		Dependency: []string{timestampFile},
		MessageType: []*descriptorpb.DescriptorProto{
			message("AuthenticateRequest", str("token", 1)),
			message("AuthorizeRequest", str("token", 1), str("document_id", 2), required),
			message("Principal",
				str("user_id", 1), str("username", 2), str("email", 3),
				str("role", 4), str("document_id", 5), str("level", 6)),
			message("VerifyResourceTokenRequest", str("token", 1)),
			message("VerifyResourceTokenResponse", str("resource_id", 1), expiresAt),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("AccessControl"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("Authenticate", "AuthenticateRequest", "Principal"),
				method("Authorize", "AuthorizeRequest", "Principal"),
				method("VerifyResourceToken", "VerifyResourceTokenRequest", "VerifyResourceTokenResponse"),
			},
		}},
	}
}

func setString(m *dynamicpb.Message, name protoreflect.Name, v string) {
	if v == "" {
		return
	}
	m.Set(m.Descriptor().Fields().ByName(name), protoreflect.ValueOfString(v))
}

func getString(m *dynamicpb.Message, name protoreflect.Name) string {
	return m.Get(m.Descriptor().Fields().ByName(name)).String()
}

func (r *AuthenticateRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(authenticateRequestDesc)
	setString(m, "token", r.Token)
	return m
}

func authenticateRequestFromProto(m *dynamicpb.Message) *AuthenticateRequest {
	return &AuthenticateRequest{Token: getString(m, "token")}
}

func (r *AuthorizeRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(authorizeRequestDesc)
	setString(m, "token", r.Token)
	setString(m, "document_id", r.DocumentID)
	if len(r.Required) > 0 {
		list := m.Mutable(authorizeRequestDesc.Fields().ByName("required")).List()
		for _, l := range r.Required {
			list.Append(protoreflect.ValueOfString(l))
		}
	}
	return m
}

func authorizeRequestFromProto(m *dynamicpb.Message) *AuthorizeRequest {
	out := &AuthorizeRequest{
		Token:      getString(m, "token"),
		DocumentID: getString(m, "document_id"),
	}
	list := m.Get(authorizeRequestDesc.Fields().ByName("required")).List()
	for i := 0; i < list.Len(); i++ {
		out.Required = append(out.Required, list.Get(i).String())
	}
	return out
}

func (r *PrincipalResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(principalDesc)
	setString(m, "user_id", r.UserID)
	setString(m, "username", r.Username)
	setString(m, "email", r.Email)
	setString(m, "role", r.Role)
	setString(m, "document_id", r.DocumentID)
	setString(m, "level", r.Level)
	return m
}

func principalFromProto(m *dynamicpb.Message) *PrincipalResponse {
	return &PrincipalResponse{
		UserID:     getString(m, "user_id"),
		Username:   getString(m, "username"),
		Email:      getString(m, "email"),
		Role:       getString(m, "role"),
		DocumentID: getString(m, "document_id"),
		Level:      getString(m, "level"),
	}
}

func (r *VerifyResourceTokenRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(verifyRequestDesc)
	setString(m, "token", r.Token)
	return m
}

func verifyRequestFromProto(m *dynamicpb.Message) *VerifyResourceTokenRequest {
	return &VerifyResourceTokenRequest{Token: getString(m, "token")}
}

func (r *VerifyResourceTokenResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(verifyResponseDesc)
	setString(m, "resource_id", r.ResourceID)
	if !r.ExpiresAt.IsZero() {
		fd := verifyResponseDesc.Fields().ByName("expires_at")
		ts := m.NewField(fd).Message()
		tsFields := ts.Descriptor().Fields()
		ts.Set(tsFields.ByName("seconds"), protoreflect.ValueOfInt64(r.ExpiresAt.Unix()))
		ts.Set(tsFields.ByName("nanos"), protoreflect.ValueOfInt32(int32(r.ExpiresAt.Nanosecond())))
		m.Set(fd, protoreflect.ValueOfMessage(ts))
	}
	return m
}

func verifyResponseFromProto(m *dynamicpb.Message) *VerifyResourceTokenResponse {
	out := &VerifyResourceTokenResponse{ResourceID: getString(m, "resource_id")}
	fd := verifyResponseDesc.Fields().ByName("expires_at")
	if m.Has(fd) {
		ts := m.Get(fd).Message()
		tsFields := ts.Descriptor().Fields()
		sec := ts.Get(tsFields.ByName("seconds")).Int()
		nanos := ts.Get(tsFields.ByName("nanos")).Int()
		out.ExpiresAt = time.Unix(sec, nanos).UTC()
	}
	return out
}
